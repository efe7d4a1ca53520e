// Package main provides a connector for tests that never answers in time.
package main

import "time"

func main() {
	time.Sleep(time.Minute)
}
