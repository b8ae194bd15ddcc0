package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCRMMonCommand      = "crm_mon --as-xml --one-shot"
	defaultPollIntervalSecond = 5
	defaultCommandQueue       = "crm-commands"
	defaultPort               = "8080"
)

// New reads the configuration from the environment. All missing or malformed variables are
// reported at once.
func New() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	basePath, err := requireEnv("BASE_PATH")
	collect(err)
	catalogDir, err := requireEnv("CATALOG_DIR")
	collect(err)
	pollInterval, err := optionalEnvAsInt("STATUS_POLL_INTERVAL_SECONDS", defaultPollIntervalSecond)
	collect(err)
	logPretty, err := optionalEnvAsBool("LOG_PRETTY", false)
	collect(err)
	subnets, err := optionalEnvAsPrefixes("HOST_SUBNETS")
	collect(err)

	cfg := Config{
		BasePath:           basePath,
		Port:               optionalEnv("PORT", defaultPort),
		CatalogDir:         catalogDir,
		CRMMonCommand:      strings.Fields(optionalEnv("CRM_MON_COMMAND", defaultCRMMonCommand)),
		StatusPollInterval: time.Duration(pollInterval) * time.Second,
		CommandQueue:       optionalEnv("COMMAND_QUEUE", defaultCommandQueue),
		HostSubnets:        subnets,
		LogPretty:          logPretty,
	}
	if len(cfg.CRMMonCommand) == 0 {
		errs = append(errs, errors.New("CRM_MON_COMMAND must not be blank"))
	}
	if cfg.StatusPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("STATUS_POLL_INTERVAL_SECONDS must be positive, got %d", pollInterval))
	}

	if _, ok := os.LookupEnv("REDIS_HOST"); ok {
		host, _ := requireEnv("REDIS_HOST")
		port, err := requireEnvAsInt("REDIS_PORT")
		collect(err)
		cfg.Redis = &redis{Host: host, Port: port}
	}

	if _, ok := os.LookupEnv("RABBITMQ_HOST"); ok {
		host, _ := requireEnv("RABBITMQ_HOST")
		port, err := requireEnvAsInt("RABBITMQ_PORT")
		collect(err)
		username, err := requireEnv("RABBITMQ_USERNAME")
		collect(err)
		password, err := requireEnv("RABBITMQ_PASSWORD")
		collect(err)
		cfg.RabbitMqURL = &rabbitmq{Host: host, Port: port, Username: username, Password: password}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type Config struct {
	BasePath           string
	Port               string
	CatalogDir         string
	CRMMonCommand      []string
	StatusPollInterval time.Duration
	// Redis is nil when no snapshot store is configured.
	Redis *redis
	// RabbitMqURL is nil when no live command sink is configured. Live mutations are then refused.
	RabbitMqURL  *rabbitmq
	CommandQueue string
	HostSubnets  []netip.Prefix
	LogPretty    bool
}

type redis struct {
	Host string
	Port int
}

func (r redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type rabbitmq struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (r rabbitmq) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("can't find environment variable: %s", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("can't parse %s as integer: %v", key, err)
	}
	return value, nil
}

func optionalEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

func optionalEnvAsInt(key string, fallback int) (int, error) {
	if _, exists := os.LookupEnv(key); !exists {
		return fallback, nil
	}
	return requireEnvAsInt(key)
}

func optionalEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("can't parse %s as boolean: %v", key, err)
	}
	return value, nil
}

// optionalEnvAsPrefixes parses a comma separated list of CIDR prefixes.
func optionalEnvAsPrefixes(key string) ([]netip.Prefix, error) {
	valueStr := optionalEnv(key, "")
	if valueStr == "" {
		return nil, nil
	}

	var prefixes []netip.Prefix
	for _, s := range strings.Split(valueStr, ",") {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("can't parse %s: %v", key, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}
