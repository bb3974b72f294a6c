package main

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "dev"
