package nopanic

import (
	"errors"
	"log"
)

func mustParse(s string) int {
	if s == "" {
		panic(errors.New("empty")) // want `panic\(\) in library code terminates the program; return an error instead`
	}
	return len(s)
}

func fatal() {
	log.Fatal("boom") // want `log.Fatal\(\) in library code`
}

var ready bool

func init() {
	if !ready {
		panic("init may panic")
	}
}
