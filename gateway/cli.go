package gateway

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/scy"
)

// Options represents command line options
type Options struct {
	Profile      string `short:"p" long:"profile" description:"AWS profile name to retrieve credentials"`
	AccessKey    string `short:"a" long:"access-key" description:"AWS access key"`
	SecretKey    string `short:"s" long:"secret-key" description:"AWS secret access key"`
	SessionToken string `short:"t" long:"session-token" description:"AWS session token"`
	Region       string `short:"r" long:"region" default:"us-east-1" description:"AWS region"`
	Command      string `short:"c" long:"command" default:"list" description:"commands: list, create, delete, update"`
	APIID        string `short:"i" long:"api-id" description:"gateway API ID"`
	URL          string `short:"u" long:"url" description:"backend URL end-point"`
	ConfigURL    string `long:"config" description:"config location URL"`
	SecretsURL   string `long:"secrets" description:"secret resource URL with AWS credentials"`
	SecretsKey   string `long:"secrets-key" description:"secret resource key"`
	AuditURL     string `long:"audit" description:"operation audit stream URL"`
	MetricPort   int    `long:"metric-port" description:"HTTP endpoint port to expose metrics"`
}

// Config builds service configuration from options
func (o *Options) Config(ctx context.Context) (*Config, error) {
	if o.ConfigURL != "" {
		return NewConfigFromURL(ctx, o.ConfigURL)
	}
	config := &Config{
		Profile:         o.Profile,
		AccessKey:       o.AccessKey,
		SecretAccessKey: o.SecretKey,
		SessionToken:    o.SessionToken,
		Region:          o.Region,
		AuditURL:        o.AuditURL,
		MetricPort:      o.MetricPort,
	}
	if o.SecretsURL != "" {
		config.Secrets = &scy.Resource{URL: o.SecretsURL, Key: o.SecretsKey}
	}
	config.Init()
	return config, config.Validate()
}

// Run executes a single gateway command
func Run(args []string) {
	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	ctx := context.Background()
	config, err := options.Config(ctx)
	if err != nil {
		fatal(parser, err)
	}
	srv, err := New(ctx, config)
	if err != nil {
		fatal(parser, err)
	}
	defer srv.Close()

	switch options.Command {
	case "list":
		fmt.Printf("Listing %v gateways...\n", srv.Region())
		apis, err := srv.List(ctx)
		if err != nil {
			fatal(parser, err)
		}
		for _, api := range apis {
			fmt.Println(api.String())
		}
	case "create":
		fmt.Printf("Creating => %v...\n", options.URL)
		api, err := srv.Create(ctx, options.URL)
		if err != nil {
			fatal(parser, err)
		}
		fmt.Println(api.Summary())
	case "delete":
		deleted, err := srv.Delete(ctx, options.APIID)
		if err != nil {
			fatal(parser, err)
		}
		fmt.Printf("Deleting %v => %v\n", options.APIID, outcome(deleted))
	case "update":
		fmt.Printf("Updating %v => %v...\n", options.APIID, options.URL)
		updated, err := srv.Update(ctx, options.APIID, options.URL)
		if err != nil {
			fatal(parser, err)
		}
		fmt.Printf("Gateway update complete: %v\n", outcome(updated))
	default:
		fmt.Fprintf(os.Stderr, "[ERROR] unsupported command: %v\n\n", options.Command)
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
}

func outcome(ok bool) string {
	if ok {
		return "Success!"
	}
	return "Failed!"
}

func fatal(parser *flags.Parser, err error) {
	parser.WriteHelp(os.Stderr)
	log.Fatalln(err)
}
