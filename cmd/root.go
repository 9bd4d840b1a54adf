// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/database"
	"github.com/go-geospatial/go-stac-api/extensions"
	"github.com/go-geospatial/go-stac-api/memory"
	"github.com/go-geospatial/go-stac-api/router"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "go-stac-api",
	Short: "Serve a STAC API v1.0.0",
	Long:  `go-stac-api serves a STAC API with the transaction and filter extensions backed by pgstac or an in-memory catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := common.SetupLogging(common.LogConfigFromViper()); err != nil {
			return err
		}

		client, exts, closeFn, err := newClient(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to create catalog client")
			return err
		}
		defer closeFn()

		app := router.NewApp(router.AppOptions{
			CORSOrigins: viper.GetString("server.cors_origins"),
			Compress:    viper.GetBool("server.compress"),
		})

		prometheus := fiberprometheus.New("go-stac-api")
		prometheus.RegisterAt(app, "/metrics")
		app.Use(prometheus.Middleware)

		if err := router.SetupRoutes(app, client, exts, router.Settings{
			Prefix:          viper.GetString("server.prefix"),
			BrowserConfig:   viper.GetString("gui.config"),
			Cache:           viper.GetBool("server.cache"),
			CacheExpiration: viper.GetDuration("server.cache_expiration"),
		}); err != nil {
			log.Error().Err(err).Msg("failed to register routes")
			return err
		}

		// shutdown cleanly on interrupt
		go func() {
			<-ctx.Done()
			log.Info().Msg("received interrupt; shutting down")
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				log.Error().Err(err).Msg("app shutdown failed")
			}
		}()

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Error().Err(err).Msg("app.Listen returned an error")
			return err
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds the configured catalog backend and its extensions
func newClient(ctx context.Context) (any, core.Extensions, func(), error) {
	meta := stac.DefaultLandingMeta()
	if id := viper.GetString("stac.catalog.id"); id != "" {
		meta.ID = id
	}
	if title := viper.GetString("stac.catalog.title"); title != "" {
		meta.Title = title
	}
	if description := viper.GetString("stac.catalog.description"); description != "" {
		meta.Description = description
	}
	names := viper.GetStringSlice("stac.extensions")

	switch backend := strings.ToLower(viper.GetString("database.backend")); backend {
	case "memory":
		client := memory.New()
		exts, err := newExtensions(client, client, names)
		if err != nil {
			return nil, nil, nil, err
		}
		client.Extensions = exts
		client.Meta = meta
		log.Info().Msg("serving in-memory catalog")
		return client, exts, func() {}, nil

	case "pgstac", "postgres":
		pool, err := database.Connect(ctx, viper.GetString("database.dsn"))
		if err != nil {
			return nil, nil, nil, err
		}
		client := database.NewClient(pool, database.BreakerSettings{
			MaxFailures: viper.GetUint32("database.breaker.max_failures"),
			Timeout:     viper.GetDuration("database.breaker.timeout"),
		})
		exts, err := newExtensions(client, client, names)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		client.Extensions = exts
		client.Meta = meta
		log.Info().Msg("successfully connected to database")
		return client, exts, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown database backend %q; expected memory or pgstac", backend)
	}
}

// newExtensions instantiates the named extensions in order
func newExtensions(transactions, filters any, names []string) (core.Extensions, error) {
	exts := make(core.Extensions, 0, len(names))
	for _, name := range names {
		var ext core.Extension
		var err error
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "transaction":
			ext, err = extensions.NewTransactionExtension(transactions)
		case "filter":
			ext, err = extensions.NewFilterExtension(filters)
		case "fields":
			ext = extensions.NewFieldsExtension()
		case "query":
			ext = extensions.NewQueryExtension()
		case "sort":
			ext = extensions.NewSortExtension()
		case "context":
			ext = extensions.NewContextExtension()
		case "":
			continue
		default:
			err = fmt.Errorf("unknown extension %q", name)
		}
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/go-stac-api.toml)")

	// server flags
	rootCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	bind(rootCmd.Flags().Lookup("port"), "server.port", "PORT")
	bindString(rootCmd.Flags(), "prefix", router.DefaultPrefix, "Route prefix of the STAC API", "server.prefix", "PREFIX")
	bindString(rootCmd.Flags(), "cors-origins", "*", "Comma separated list of allowed CORS origins", "server.cors_origins", "CORS_ORIGINS")
	bindBool(rootCmd.Flags(), "cache", false, "Cache GET responses", "server.cache", "CACHE")
	bindBool(rootCmd.Flags(), "compress", true, "Compress responses", "server.compress", "COMPRESS")
	viper.SetDefault("server.cache_expiration", 30*time.Minute)

	// Logging configuration
	bindString(rootCmd.PersistentFlags(), "log-level", "info", "Logging level", "log.level", "LOG_LEVEL")
	bindBool(rootCmd.PersistentFlags(), "log-report-caller", false, "Log function name that called log statement", "log.report_caller", "LOG_REPORT_CALLER")
	bindString(rootCmd.PersistentFlags(), "log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`", "log.output", "LOG_OUTPUT")
	bindBool(rootCmd.PersistentFlags(), "log-pretty", false, "Human readable console logs", "log.pretty", "LOG_PRETTY")

	// database
	bindString(rootCmd.PersistentFlags(), "backend", "memory", "Catalog backend: memory or pgstac", "database.backend", "BACKEND")
	bindString(rootCmd.PersistentFlags(), "dsn", "", "PostgreSQL connection string", "database.dsn", "DSN")
	viper.SetDefault("database.breaker.max_failures", 5)
	viper.SetDefault("database.breaker.timeout", 30*time.Second)

	// catalog
	viper.SetDefault("stac.extensions", []string{"transaction", "filter", "fields", "query", "sort", "context"})
	if err := viper.BindEnv("stac.extensions", "STAC_EXTENSIONS"); err != nil {
		log.Panic().Err(err).Msg("could not bind STAC_EXTENSIONS")
	}
}

func bindString(flags *pflag.FlagSet, name, value, usage, key, env string) {
	flags.String(name, value, usage)
	bind(flags.Lookup(name), key, env)
}

func bindBool(flags *pflag.FlagSet, name string, value bool, usage, key, env string) {
	flags.Bool(name, value, usage)
	bind(flags.Lookup(name), key, env)
}

func bind(flag *pflag.Flag, key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Msgf("could not bind %s", env)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Panic().Err(err).Msgf("could not bind %s", flag.Name)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a .env file in the working directory is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name "go-stac-api.toml"
		viper.AddConfigPath("/etc/")
		viper.AddConfigPath(fmt.Sprintf("%s/.config", home))
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName("go-stac-api")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Info().Str("ConfigFile", viper.ConfigFileUsed()).Msg("Loaded config file")
	case errors.As(err, &notFound) && cfgFile == "":
		log.Debug().Msg("no config file found; using flags and environment")
	default:
		log.Error().Stack().Err(err).Msg("error reading config file")
		os.Exit(1)
	}
}
