package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Log struct {
		Level string
	}
	Auth struct {
		JWTKey          string
		Issuer          string
		Audience        string
		TokenTTLMinutes int
	}
	Password struct {
		Iterations        int
		SaltSize          int
		KeySize           int
		MinLength         int
		RequireComplexity bool
		GeneratedLength   int
	}
	Mail struct {
		Driver  string
		From    string
		Subject string
		S3      struct {
			Bucket    string
			KeyPrefix string
			Region    string
			Endpoint  string
		}
		AMQP struct {
			URL   string
			Queue string
		}
	}
	AWS struct {
		Profile string
	}
	Bootstrap struct {
		FirstName     string
		LastFirstName string
		Mail          string
		Phone         string
		CI            string
	}
}

// TokenTTL returns the configured token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// Validate reports configuration that must stop the process at startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTKey) == "" {
		return errors.New("auth jwt key is required")
	}
	switch c.Mail.Driver {
	case "log":
	case "s3":
		if c.Mail.S3.Bucket == "" {
			return errors.New("mail s3 bucket is required for the s3 driver")
		}
	case "amqp":
		if c.Mail.AMQP.URL == "" {
			return errors.New("mail amqp url is required for the amqp driver")
		}
	default:
		return fmt.Errorf("unknown mail driver %q", c.Mail.Driver)
	}
	// the log driver drops message bodies, so a bootstrap password would be lost
	if c.Bootstrap.Mail != "" && c.Mail.Driver == "log" {
		return errors.New("bootstrap mail requires the s3 or amqp mail driver")
	}
	return nil
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env is optional and never overrides the real environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("USERSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("log.level", "info")

	v.SetDefault("auth.jwtkey", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.tokenttlminutes", 60)

	v.SetDefault("password.iterations", 100000)
	v.SetDefault("password.saltsize", 16)
	v.SetDefault("password.keysize", 32)
	v.SetDefault("password.minlength", 8)
	v.SetDefault("password.requirecomplexity", true)
	v.SetDefault("password.generatedlength", 12)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.subject", "")
	v.SetDefault("mail.s3.bucket", "")
	v.SetDefault("mail.s3.keyprefix", "mail-outbox")
	v.SetDefault("mail.s3.region", "us-east-1")
	v.SetDefault("mail.s3.endpoint", "")
	v.SetDefault("mail.amqp.url", "")
	v.SetDefault("mail.amqp.queue", "email_jobs")
	v.SetDefault("aws.profile", "")

	v.SetDefault("bootstrap.firstname", "")
	v.SetDefault("bootstrap.lastfirstname", "")
	v.SetDefault("bootstrap.mail", "")
	v.SetDefault("bootstrap.phone", "")
	v.SetDefault("bootstrap.ci", "")
}
