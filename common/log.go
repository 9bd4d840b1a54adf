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

package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level        string
	ReportCaller bool
	// Output is "stdout", "stderr" or a file path
	Output string
	Pretty bool
}

// LogConfigFromViper reads the log.* keys
func LogConfigFromViper() LogConfig {
	return LogConfig{
		Level:        viper.GetString("log.level"),
		ReportCaller: viper.GetBool("log.report_caller"),
		Output:       viper.GetString("log.output"),
		Pretty:       viper.GetBool("log.pretty"),
	}
}

// ParseLevel maps a configured level name to a zerolog level. Unknown names
// fall back to warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.WarnLevel
	}
}

// SetupLogging configures the global logger
func SetupLogging(cfg LogConfig) error {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		fh, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log output %s: %w", cfg.Output, err)
		}
		out = fh
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp()
	if cfg.ReportCaller {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()

	// setup stack marshaler
	//nolint:reassign
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	log.Info().Str("level", level.String()).Msg("initialized logging")
	return nil
}
