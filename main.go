package main

import "stivoting/internal/app"

// @title           STI-voting Identity API
// @version         1.0
// @description     Registration, email verification, sessions and password reset for the STI voting platform.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
