package common

import "os"

func IsDevelopment() bool {
	return os.Getenv(EnvKeyGoEnv) == "development"
}

func IsProduction() bool {
	return os.Getenv(EnvKeyGoEnv) == "production"
}

// Float64Ptr is a convenience for building optional threshold bounds.
func Float64Ptr(v float64) *float64 {
	return &v
}
