package cmd

import (
	"fmt"
	"os"
	"strconv"
)

const envPrefix = "ROCKETSHIP_"

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		return v
	}

	return fallback
}

func envInt(name string, fallback int) int {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring %s%s=%q: not an integer\n",
			envPrefix, name, v)
		return fallback
	}

	return n
}

func envBool(name string, fallback bool) bool {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring %s%s=%q: not a boolean\n",
			envPrefix, name, v)
		return fallback
	}

	return b
}
