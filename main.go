package main

import "kbwatch/internal/app"

func main() {
	app.Main()
}
