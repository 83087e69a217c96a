package main

import (
	"context"
	"crypto/rand"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KarpelesLab/goupd"
	"github.com/KarpelesLab/rndstr"
	"github.com/getsentry/sentry-go"
	"github.com/lattice-dns/dnscore/resolver"
)

var (
	shutdownChannel = make(chan struct{})
	res             *resolver.Resolver
	sec             *resolver.SecureResolver
	apiKey          string
)

func shutdown() {
	log.Println("[main] shutting down...")
	close(shutdownChannel)
}

func setupSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	go func() {
		<-c
		shutdown()
	}()
}

func main() {
	setupSignals()
	log.Printf("[main] Initializing resolverd...")
	goupd.AutoUpdate(false)

	if dsn := os.Getenv("RESOLVERD_SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			log.Printf("[main] sentry init failed: %s", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	res = resolver.New(resolver.NewTransport())
	if dir := os.Getenv("RESOLVERD_CACHE_DIR"); dir != "" {
		disk, err := resolver.OpenDiskCache(dir)
		if err != nil {
			log.Printf("[main] disk cache disabled: %s", err)
		} else {
			res.Disk = disk
			defer disk.Close()
		}
	}
	sec = resolver.NewSecureResolver(res)

	apiKey = generateAPIKey()
	log.Printf("[main] API access key for this instance is: %s", apiKey)
	log.Printf("[main] listening on local addresses: %v", getIps())

	errch := make(chan error)

	go initUdp(errch)
	go initTcp(errch)

	select {
	case err := <-errch:
		log.Printf("[main] init failed: %s", err)
		os.Exit(1)
	case <-shutdownChannel:
	}

	log.Printf("[main] Bye bye")
}

func generateAPIKey() string {
	key, err := rndstr.SimpleReader(16, rndstr.Alnum, rand.Reader)
	if err != nil {
		panic(err)
	}
	return key
}

func reportBogus(err error) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.CaptureException(err)
	}
}

func getIps() []net.IP {
	ips := []net.IP{}

	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range addrs {
			switch v := a.(type) {
			case *net.IPNet:
				ip := v.IP
				if !ip.IsGlobalUnicast() {
					continue
				}
				ips = append(ips, ip)
			}
		}
	}

	return ips
}

// shutdownContext returns a context cancelled when the daemon begins
// graceful shutdown, the cancellation token every in-flight resolve
// checks at its suspension points.
func shutdownContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdownChannel
		cancel()
	}()
	return ctx
}
