package logger

import (
	"fmt"
	"time"
)

// ANSI color codes. Output is console-only; no log files.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func stamp() string {
	return time.Now().Format("15:04:05")
}

func line(color, symbol, tag, msg string) {
	fmt.Printf("%s%s%s %s%s%s %s[%s]%s %s\n", dim, stamp(), reset, color, symbol, reset, bold, tag, reset, msg)
}

// Info logs a neutral progress message.
func Info(tag, msg string) {
	line(cyan, "·", tag, msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	line(green, "✓", tag, msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	line(yellow, "!", tag, msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	line(red, "✗", tag, msg)
}

// Section prints a visual divider for a named phase.
func Section(name string) {
	fmt.Printf("\n%s%s── %s %s%s\n", bold, cyan, name, "──────────────────────────────", reset)
}

// Stats prints a key/value pair aligned under the current section.
func Stats(key string, value interface{}) {
	fmt.Printf("  %s%-24s%s %v\n", dim, key, reset, value)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s", bold, cyan)
	fmt.Println(`  ___  __   ____  ____    ____  __    __  ____  ____  ____  ____`)
	fmt.Println(` / __)/ _\ (  _ \(    \  (  __)(  )  (  )(  _ \(  _ \(  __)(  _ \`)
	fmt.Println(`( (__/    \ )   / ) D (   ) _) / (_/\ )(  ) __/ ) __/ ) _)  )   /`)
	fmt.Println(` \___)\_/\_/(__\_)(____/  (__)  \____/(__)(__)  (__)  (____)(__\_)`)
	fmt.Printf("%s  card-flipper %s — collectible market analytics%s\n\n", reset+dim, version, reset)
}

// Server logs the listen address once the HTTP server is up.
func Server(addr string) {
	Success("Server", fmt.Sprintf("Listening on http://%s", addr))
}
