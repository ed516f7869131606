package main

import "github.com/nsxzhou1114/notify-api/cmd"

func main() {
	cmd.Execute()
}
