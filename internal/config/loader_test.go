package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/mealspin/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, "memory")
				convey.So(cfg.CandidateLimit, convey.ShouldEqual, 1000)
				convey.So(cfg.DefaultExcludeDays, convey.ShouldEqual, 7)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MEALSPIN_ADDR", ":8080")
			_ = os.Setenv("MEALSPIN_CANDIDATE_LIMIT", "250")
			_ = os.Setenv("MEALSPIN_DEFAULT_EXCLUDE_DAYS", "0")
			_ = os.Setenv("MEALSPIN_RAND_SEED", "42")
			_ = os.Setenv("MEALSPIN_LOG_LEVEL", "debug")
			_ = os.Setenv("MEALSPIN_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CandidateLimit, convey.ShouldEqual, 250)
				convey.So(cfg.DefaultExcludeDays, convey.ShouldEqual, 0)
				convey.So(cfg.RandSeed, convey.ShouldEqual, 42)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# catalog served from memory
addr: ":9090"
timezone: UTC
candidate_limit: 500
max_diverse_count: 4
catalog_file: testdata/catalog.yaml
`
			tmpFile := createTempFile("mealspin-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEALSPIN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CandidateLimit, convey.ShouldEqual, 500)
				convey.So(cfg.MaxDiverseCount, convey.ShouldEqual, 4)
				convey.So(cfg.CatalogFile, convey.ShouldEqual, "testdata/catalog.yaml")
				convey.So(cfg.DefaultExcludeDays, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
candidate_limit: 500
`
			tmpFile := createTempFile("mealspin-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEALSPIN_CONFIG", tmpFile)
			_ = os.Setenv("MEALSPIN_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CandidateLimit, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile("mealspin-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MEALSPIN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MEALSPIN_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MEALSPIN_CANDIDATE_LIMIT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the postgres store is selected without a url", func() {
			_ = os.Setenv("MEALSPIN_STORE", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderDotEnv(t *testing.T) {
	convey.Convey("Given a .env file", t, func() {
		ctx := context.Background()
		envFile := createTempFile("mealspin-*.env", "MEALSPIN_ADDR=:7070\nMEALSPIN_TIMEZONE=UTC\n")
		defer func() { _ = os.Remove(envFile) }()

		convey.Convey("When it is named by MEALSPIN_ENV_FILE", func() {
			_ = os.Setenv("MEALSPIN_ENV_FILE", envFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the process already sets the same variable", func() {
			_ = os.Setenv("MEALSPIN_ENV_FILE", envFile)
			_ = os.Setenv("MEALSPIN_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the process value wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the named file is missing", func() {
			_ = os.Setenv("MEALSPIN_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MEALSPIN_CONFIG",
		"MEALSPIN_ENV_FILE",
		"MEALSPIN_ADDR",
		"MEALSPIN_STORE",
		"MEALSPIN_TIMEZONE",
		"MEALSPIN_LOG_LEVEL",
		"MEALSPIN_RAND_SEED",
		"MEALSPIN_CANDIDATE_LIMIT",
		"MEALSPIN_DEFAULT_EXCLUDE_DAYS",
		"MEALSPIN_CORS_ALLOWED_ORIGINS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
