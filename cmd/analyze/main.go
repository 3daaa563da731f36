// Package main runs a one-shot security analysis of a single token address
// and prints the verdict.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/agelookup"
	"bsc-token-sniper/internal/config"
	"bsc-token-sniper/internal/freshness"
	"bsc-token-sniper/internal/goplus"
	"bsc-token-sniper/internal/security"
)

func main() {
	token := flag.String("token", "", "Token contract address to analyze")
	asJSON := flag.Bool("json", false, "Print the verdict as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "Analysis timeout")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *token == "" {
		log.Fatal("--token is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	address := strings.ToLower(*token)

	classifier := freshness.NewClassifier(
		agelookup.NewClient(cfg.ExplorerAPIURL, cfg.ExplorerAPIKey),
		freshness.Config{MaxAgeMinutes: cfg.MaxTokenAgeMinutes, Denylist: cfg.Denylist},
	)
	if classifier.Denied(address) {
		log.Fatal("token is denylisted")
	}

	age := classifier.AgeMinutes(ctx, address)
	fresh := classifier.Eligible(age)

	attrs, err := goplus.NewClient(goplus.WithAPIKey(cfg.GoPlusAPIKey)).TokenSecurity(ctx, address)
	if err != nil {
		log.WithError(err).Fatal("fetch risk attributes")
	}

	scorer := security.NewScorer(security.Config{
		FreshThreshold:    cfg.FreshThreshold,
		StandardThreshold: cfg.StandardThreshold,
		MinHolderCount:    cfg.MinHoldersCount,
	})
	verdict := scorer.Score(address, attrs, fresh)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verdict); err != nil {
			log.WithError(err).Fatal("encode verdict")
		}
		return
	}

	outcome := "REJECTED"
	if verdict.Safe {
		outcome = "PASSED"
	}
	fmt.Printf("Token:     %s\n", address)
	if attrs.TokenName != "" {
		fmt.Printf("Name:      %s (%s)\n", attrs.TokenName, attrs.TokenSymbol)
	}
	fmt.Printf("Age:       %.1f min (fresh: %v)\n", age, fresh)
	fmt.Printf("Score:     %d/100 (threshold %d)\n", verdict.Score, verdict.Threshold)
	fmt.Printf("Result:    %s\n\n", outcome)

	fmt.Println("Checks:")
	for _, check := range verdict.Checks {
		status := "PASS"
		if !check.Safe {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-25s %5.1f  %s\n", status, check.Name, check.Score, check.Reason)
	}

	if !verdict.Safe {
		os.Exit(1)
	}
}
