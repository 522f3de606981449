package pkg

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLog points a new logger at dest, appending, and tags every entry
// with the component prefix. An empty dest logs to stderr.
func InitLog(dest, prefix, level string) (*logrus.Entry, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)

	if dest != "" {
		f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
	}
	return log.WithField("component", prefix), nil
}
