package main

import "github.com/githubb-dot/gamified-app/cmd/lvl/root"

func main() {
	root.Execute()
}
