package builtins

import (
	"math"
	"strconv"
	"strings"
)

func math_NaN() float64    { return math.NaN() }
func isNaN(f float64) bool { return math.IsNaN(f) }

func parseStringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return math.Inf(1)
	}
	if s == "-Infinity" {
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
