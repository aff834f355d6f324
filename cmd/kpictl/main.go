/*
main.go - kpictl, offline planning tool

PURPOSE:
  Runs the distribution and workday logic from the command line without a
  server or database. Useful for checking how a BOQ quantity will be spread
  before committing an activity.

COMMANDS:
  distribute <total> <days>              Per-day allocation
  workdays <start> <end>                 Working days in a range
  plan --units N --start D --end D       Planned KPI records for one activity

GLOBAL FLAGS:
  --weekend   sat-sun | fri | fri-sat | none (default: sat-sun)
  --holiday   YYYY-MM-DD, repeatable

EXAMPLES:
  kpictl distribute 100 7
  kpictl workdays 2025-03-03 2025-03-16 --holiday 2025-03-10
  kpictl plan --units 100 --start 2025-03-03 --end 2025-03-11 --unit m3
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
