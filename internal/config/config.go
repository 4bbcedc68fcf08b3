package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses the token expiry durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// token lifetimes, and URLs for the browser redirect targets after a
// federated login.
type Config struct {
    Env    string // application environment (e.g. "dev", "prod")
    Port   string // HTTP port to listen on
    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    JWTSecret          string        // secret used to sign JWTs
    Issuer             string        // issuer embedded in and checked against token claims
    AccessTokenExpiry  time.Duration // access token time-to-live
    RefreshTokenExpiry time.Duration // refresh token time-to-live

    SessionSecret    string        // secret used to sign the session cookie
    SessionMaxAge    time.Duration // session cookie lifetime
    PasswordResetTTL time.Duration // validity window for password reset tokens
    BcryptCost       int           // bcrypt cost for hashing passwords on reset

    GoogleClientID     string // OAuth client id issued by the provider
    GoogleClientSecret string // OAuth client secret
    BackendHost        string // external base URL of this service, used to build callback URLs

    FailureRedirectURL string // where the browser lands after a rejected federated login
    DefaultRedirectURL string // where the browser lands after a successful login
    CompleteProfileURL string // where unregistered federated identities are sent to register
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values
// fall back to the defaults the original deployment shipped with.
func Load() Config {
    return Config{
        Env:    must("APP_ENV"),      // environment (dev/test/prod)
        Port:   must("APP_PORT"),     // port to bind the HTTP server
        DBUser: must("DB_USER"),      // database user
        DBPass: os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost: must("DB_HOST"),      // database host
        DBPort: must("DB_PORT"),      // database port
        DBName: must("DB_NAME"),      // database name

        JWTSecret:          must("JWT_SECRET"),                          // secret used for signing JWTs
        Issuer:             getenv("JWT_ISSUER", "portal-api"),          // issuer claim value
        AccessTokenExpiry:  mustDur("JWT_ACCESS_TOKEN_EXPIRY", "1h"),    // TTL for access tokens
        RefreshTokenExpiry: mustDur("JWT_REFRESH_TOKEN_EXPIRY", "168h"), // TTL for refresh tokens

        SessionSecret:    must("SESSION_SECRET"),            // secret for the session cookie signature
        SessionMaxAge:    mustDur("SESSION_MAX_AGE", "24h"), // cookie lifetime
        PasswordResetTTL: time.Duration(mustInt("PASSWORD_RESET_EXPIRY_MIN", "30")) * time.Minute,
        BcryptCost:       mustInt("BCRYPT_COST", "10"),

        GoogleClientID:     must("GOOGLE_CLIENT_ID"), // federated provider credentials
        GoogleClientSecret: must("GOOGLE_CLIENT_SECRET"),
        BackendHost:        must("BACKEND_HOST"), // e.g. https://portal.example.com

        FailureRedirectURL: getenv("FAILURE_REDIRECT_URL", "/login"),
        DefaultRedirectURL: getenv("DEFAULT_REDIRECT_URL", "/"),
        CompleteProfileURL: getenv("FRONTEND_COMPLETE_PROFILE_URL", "/register"),
    }
}

// IsProd reports whether the service runs in a production-like deployment.
// Session cookies are only marked Secure in production so that local
// development over plain HTTP keeps working.
func (c Config) IsProd() bool { return c.Env == "prod" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustDur reads an optional duration variable, falling back to def.  A value
// that does not parse as a Go duration is a configuration mistake and aborts
// startup rather than silently running with a wrong token lifetime.
func mustDur(key, def string) time.Duration {
    s := getenv(key, def)
    d, err := time.ParseDuration(s)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, s)
    }
    return d
}

// mustInt reads an optional integer variable, falling back to def.  Like
// mustDur, a value that does not parse aborts startup: a silent zero here
// would mean instantly-expired reset tokens or bcrypt's default cost.
func mustInt(key, def string) int {
    s := getenv(key, def)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// getenv returns the environment value for key or def when unset or empty.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
