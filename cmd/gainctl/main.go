package main

// Version is set via ldflags during build
var version = "0.3.0-dev"

func main() {
	Execute()
}
