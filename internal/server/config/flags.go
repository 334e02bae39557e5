package config

import (
	"flag"
	"os"
	"time"

	"github.com/lodeworks/quarry/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-n int      name-change cooldown, days
//	-mh string  SMTP host
//	-mp int     SMTP port
//	-mu string  SMTP user
//	-mw string  SMTP password
//	-mf string  SMTP from address
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Args are filtered through flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-n",
		"-mh", "-mp", "-mu", "-mw", "-mf",
		"-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	nameChangeCooldown := fs.Int("n", int(config.NameChangeCooldown.Hours()/24), "name change cooldown (in days)")

	fs.StringVar(&config.SMTPHost, "mh", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "mp", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "mu", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "mw", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "mf", config.SMTPFrom, "SMTP from address")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.NameChangeCooldown = time.Duration(*nameChangeCooldown) * 24 * time.Hour
}
