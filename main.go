/*
Copyright © 2026 Spamman4587
*/
package main

import "github.com/Spamman4587/chromabot/cmd"

func main() {
	cmd.Execute()
}
