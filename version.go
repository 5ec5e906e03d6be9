package main

// Version is the makerelease CLI version.
var Version = "0.1.0"
