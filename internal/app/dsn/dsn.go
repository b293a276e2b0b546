package dsn

import (
	"fmt"
	"strings"
)

const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (p Postgres) String() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Detect picks the driver for a database URL and returns the DSN that driver expects.
// postgres:// and postgresql:// URLs and key=value strings go to postgres,
// sqlite:// URLs and bare *.db / *.sqlite paths go to sqlite.
func Detect(url string) (kind string, dsn string, err error) {
	url = strings.TrimSpace(url)
	lower := strings.ToLower(url)
	switch {
	case url == "":
		return "", "", fmt.Errorf("empty database url")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres, url, nil
	case strings.HasPrefix(lower, "sqlite://"):
		path := url[len("sqlite://"):]
		if path == "" {
			return "", "", fmt.Errorf("sqlite url without path: %q", url)
		}
		return KindSQLite, path, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasPrefix(lower, "file:"):
		return KindSQLite, url, nil
	case strings.Contains(url, "host=") || strings.Contains(url, "dbname="):
		return KindPostgres, url, nil
	}
	return "", "", fmt.Errorf("unsupported database url: %q", url)
}
