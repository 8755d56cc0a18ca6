package main

import (
	"context"
	"crypto/tls"
	"io"
	"log"
	"log/syslog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/amadorflix/amadorflix-server/api"
	"github.com/amadorflix/amadorflix-server/auth"
	"github.com/amadorflix/amadorflix-server/database"
	"github.com/amadorflix/amadorflix-server/database/sqlstore"
	"github.com/amadorflix/amadorflix-server/imageproxy"
	"github.com/amadorflix/amadorflix-server/search"
)

type config struct {
	Listen struct {
		Address string `mapstructure:"address"`
		TlsCert string `mapstructure:"tlscert"`
		TlsKey  string `mapstructure:"tlskey"`
	} `mapstructure:"listen"`
	Logfile  string `mapstructure:"logfile"`
	Cachedir string `mapstructure:"cachedir"`
	Database struct {
		// Users holds accounts and payments, Videos holds content and
		// engagement rows. Two independent stores by design.
		Users  string `mapstructure:"users"`
		Videos string `mapstructure:"videos"`
	} `mapstructure:"database"`
	Session struct {
		Secret      string `mapstructure:"secret"`
		ExpiryHours int    `mapstructure:"expiry_hours"`
	} `mapstructure:"session"`
	Payments struct {
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"payments"`
	Proxy struct {
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"proxy"`
}

func loadConfig(filename string) (*config, error) {
	if filename != "" {
		viper.SetConfigFile(filename)
	} else {
		viper.SetConfigName("amadorflix-server")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/amadorflix")
	}
	viper.AutomaticEnv()

	viper.SetDefault("listen.address", ":8080")
	viper.SetDefault("database.users", "users.db")
	viper.SetDefault("database.videos", "videos.db")
	viper.SetDefault("session.expiry_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		// config file is optional, defaults + env carry a dev setup
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var c config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func main() {
	configFile := flag.String("config", "", "Path of configuration file.")
	listen := flag.String("listen", "", "Listen address, overrides configuration.")
	logfile := flag.String("logfile", "",
		"Path of logfile. Use 'syslog' for syslog, 'stdout' "+
			"for standard output, or 'none' to disable logging.")
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *listen != "" {
		config.Listen.Address = *listen
	}
	if *logfile != "" {
		config.Logfile = *logfile
	}

	switch config.Logfile {
	case "syslog":
		logw, err := syslog.New(syslog.LOG_NOTICE, "amadorflix")
		if err != nil {
			log.Fatalf("error opening syslog: %v", err)
		}
		log.SetOutput(logw)
	case "none":
		log.SetOutput(io.Discard)
	case "":
		fallthrough
	case "stdout":
	default:
		f, err := os.OpenFile(config.Logfile,
			os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}
	log.SetFlags(0)

	log.Printf("Opening users store")
	users, err := sqlstore.NewUserStore(config.Database.Users)
	if err != nil {
		log.Fatalf("users store: %v", err)
	}
	log.Printf("Opening videos store")
	videos, err := sqlstore.NewVideoStore(config.Database.Videos)
	if err != nil {
		log.Fatalf("videos store: %v", err)
	}
	repo := database.Repository{
		Users:  users,
		Videos: videos,
	}

	sessions, err := auth.New(&auth.Options{
		Secret: config.Session.Secret,
		Expiry: time.Duration(config.Session.ExpiryHours) * time.Hour,
	})
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	log.Printf("Building search index")
	idx, err := search.New()
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	catalog, err := videos.ListVideos(context.Background(), "")
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	docs := make([]search.Document, 0, len(catalog))
	for _, v := range catalog {
		docs = append(docs, search.Document{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			Creator:     v.Creator,
		})
	}
	if err := idx.IndexBatch(context.Background(), docs); err != nil {
		log.Fatalf("search index: %v", err)
	}

	images := imageproxy.New(imageproxy.Options{
		Cachedir: config.Cachedir,
	})

	r := mux.NewRouter()
	a := api.New(&api.Options{
		Repo:           repo,
		Auth:           sessions,
		Search:         idx,
		Images:         images,
		WebhookSecret:  config.Payments.WebhookSecret,
		ProxyUserAgent: config.Proxy.UserAgent,
	})
	a.RegisterHandlers(r)

	server := HttpLog(r)
	addr := config.Listen.Address

	if config.Listen.TlsCert != "" && config.Listen.TlsKey != "" {
		kpr, err := NewKeypairReloader(config.Listen.TlsCert, config.Listen.TlsKey)
		if err != nil {
			log.Fatalf("error loading keypair: %v", err)
		}

		srv := &http.Server{
			Addr:    addr,
			Handler: server,
			TLSConfig: &tls.Config{
				MinVersion:     tls.VersionTLS13,
				GetCertificate: kpr.GetCertificateFunc(),
			},
		}
		log.Printf("Serving HTTPS on %s", addr)
		log.Fatal(srv.ListenAndServeTLS("", ""))
	} else {
		log.Printf("Serving HTTP on %s", addr)
		log.Fatal(http.ListenAndServe(addr, server))
	}
}

type keypairReloader struct {
	certMu   sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// NewKeypairReloader creates a new keypair reloader that will reload the TLS certificate
// and key from the specified paths every 15 seconds. If the certificate cannot be loaded,
// it will log an error and keep the old certificate in use.
func NewKeypairReloader(certPath, keyPath string) (*keypairReloader, error) {
	result := &keypairReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	result.cert = &cert

	go func() {
		for {
			time.Sleep(15 * time.Second)
			if err := result.maybeReload(); err != nil {
				log.Printf("Keeping old TLS certificate because the new one could not be loaded: %v", err)
			}
		}
	}()
	return result, nil
}

func (kpr *keypairReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(clientHello *tls.ClientHelloInfo) (*tls.Certificate, error) {
		kpr.certMu.RLock()
		defer kpr.certMu.RUnlock()
		return kpr.cert, nil
	}
}

func (kpr *keypairReloader) maybeReload() error {
	newCert, err := tls.LoadX509KeyPair(kpr.certPath, kpr.keyPath)
	if err != nil {
		return err
	}
	kpr.certMu.Lock()
	defer kpr.certMu.Unlock()
	kpr.cert = &newCert
	return nil
}
