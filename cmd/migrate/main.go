// Package main applies or rolls back the save schema migrations.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/arpgcore/internal/config"
	"github.com/cory-johannsen/arpgcore/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "path to the migrations directory")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	v := viper.New()
	v.SetConfigFile(*configPath)
	v.SetEnvPrefix("ARPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}
	sub := v.Sub("database")
	if sub == nil {
		log.Fatalf("config %s has no database section", *configPath)
	}
	var dbCfg config.DatabaseConfig
	if err := sub.Unmarshal(&dbCfg); err != nil {
		log.Fatalf("parsing database config: %v", err)
	}

	var n int
	switch *direction {
	case "up":
		n = *steps
	case "down":
		n = -*steps
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}

	version, changed, err := postgres.Migrate(dbCfg.DSN(), *dir, n, *direction == "down")
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	elapsed := time.Since(start)
	if !changed {
		fmt.Fprintf(os.Stdout, "no changes (version=%d) [%s]\n", version, elapsed)
		return
	}
	fmt.Fprintf(os.Stdout, "migrated %s to version=%d [%s]\n", *direction, version, elapsed)
}
