package notify

import (
	"fmt"
	"strings"
)

// Environment variables holding broker credentials.
const (
	EnvMQTTUsername  = "MQTT_USERNAME"
	EnvMQTTPassword  = "MQTT_PASSWORD"
	EnvKafkaUsername = "KAFKA_USERNAME"
	EnvKafkaPassword = "KAFKA_PASSWORD"
)

// Credentials authenticate a notifier with its backend.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// MissingEnvError lists required environment variables that are unset or empty.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return "environment variable not found: " + strings.Join(e.Names, ", ")
}

// LoadCredentials reads the credentials a notifier kind needs from getenv
// (usually os.Getenv). MQTT requires both variables; Kafka takes either both
// or neither. Console and none need nothing.
func LoadCredentials(kind string, getenv func(string) string) (Credentials, error) {
	switch kind {
	case KindMQTT:
		return required(getenv, EnvMQTTUsername, EnvMQTTPassword)
	case KindKafka:
		c := Credentials{Username: getenv(EnvKafkaUsername), Password: getenv(EnvKafkaPassword)}
		if c.IsZero() {
			return c, nil
		}
		return required(getenv, EnvKafkaUsername, EnvKafkaPassword)
	case KindConsole, KindNone, "":
		return Credentials{}, nil
	default:
		return Credentials{}, fmt.Errorf("unknown notifier %q", kind)
	}
}

func required(getenv func(string) string, userVar, passVar string) (Credentials, error) {
	c := Credentials{Username: getenv(userVar), Password: getenv(passVar)}
	var missing []string
	if c.Username == "" {
		missing = append(missing, userVar)
	}
	if c.Password == "" {
		missing = append(missing, passVar)
	}
	if len(missing) > 0 {
		return Credentials{}, &MissingEnvError{Names: missing}
	}
	return c, nil
}
