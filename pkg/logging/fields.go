package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for the recommender domain

func HostIP(ip string) Field {
	return String("host_ip", ip)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Distance(d int) Field {
	return Int("distance", d)
}

func Risk(r float64) Field {
	return Float64("risk", r)
}

func Candidates(n int) Field {
	return Int("candidates", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
