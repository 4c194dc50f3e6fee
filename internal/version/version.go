package version

// Version is overridden at build time with -ldflags "-X github.com/bnema/kiro-accounts-cli/internal/version.Version=<tag>".
var Version = "dev"
