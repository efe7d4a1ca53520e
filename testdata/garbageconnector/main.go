// Package main provides a connector for tests that prints a non-JSON line.
package main

import "fmt"

func main() {
	fmt.Println("not json")
}
