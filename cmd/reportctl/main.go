package main

import "github.com/noah-isme/sma-report-api/internal/cli"

func main() {
	cli.Execute()
}
