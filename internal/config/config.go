// Package config loads and validates the environment-driven configuration.
//
// Load is the single place where the process environment is read. It
// produces one EnvConfig value that every builder receives by parameter.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvRegion          = "AWS_REGION"
	EnvAccountID       = "AWS_ACCOUNT_ID"
	EnvRepoName        = "APP_REPO_NAME"
	EnvClusterName     = "APP_CLUSTER_NAME"
	EnvVPCCIDR         = "CUSTOM_VPC_CIDR"
	EnvPublicCIDRA     = "PUBLIC_SUBNET_CIDR_A"
	EnvPublicCIDRB     = "PUBLIC_SUBNET_CIDR_B"
	EnvPrivateCIDRA    = "PRIVATE_SUBNET_CIDR_A"
	EnvPrivateCIDRB    = "PRIVATE_SUBNET_CIDR_B"
	EnvStateBucket     = "TF_STATE_BUCKET"
	EnvStateKey        = "TF_STATE_KEY"
	EnvImageTag        = "APP_IMAGE_TAG"
	EnvContainerPort   = "CONTAINER_PORT"
	EnvDesiredTasks    = "DESIRED_TASKS"
	EnvALBPort         = "ALB_PORT"
	EnvALBAllowedCIDRs = "ALB_ALLOWED_CIDRS"
	EnvEgressCIDRs     = "SG_EGRESS_CIDRS"
	EnvCPU             = "ECS_CPU"
	EnvMemory          = "ECS_MEMORY"
	EnvLogRetention    = "LOG_RETENTION_DAYS"
	EnvEnableHTTPS     = "ENABLE_HTTPS"
	EnvDomainName      = "DOMAIN_NAME"
	EnvCertificateARN  = "CERTIFICATE_ARN"
	EnvHostedZoneID    = "HOSTED_ZONE_ID"
	EnvAppName         = "APP_NAME"
	EnvProject         = "PROJECT_NAME"
	EnvEnvironment     = "ENVIRONMENT"
	EnvOwner           = "OWNER"
	EnvCostCenter      = "COST_CENTER"
	EnvFile            = "ENV_FILE"
)

// Defaults applied by Load.
const (
	DefaultContainerPort = 3000
	DefaultDesiredTasks  = 1
	DefaultALBPort       = 80
	DefaultCIDR          = "0.0.0.0/0"
	DefaultCPU           = "256"
	DefaultMemory        = "512"
	DefaultLogRetention  = 7
	DefaultImageTag      = "latest"
	DefaultProject       = "tv-devops"
	DefaultEnvironment   = "dev"
	DefaultOwner         = "devops"
	DefaultCostCenter    = "engineering"
	DefaultEnvFile       = ".env"
)

// HTTPSPort is the port of the HTTPS listener.
const HTTPSPort = 443

// ImageTagPolicy decides whether APP_IMAGE_TAG must be supplied.
type ImageTagPolicy string

const (
	// ImageTagRequired makes APP_IMAGE_TAG a required variable.
	ImageTagRequired ImageTagPolicy = "required"
	// ImageTagDefaultLatest falls back to "latest" when APP_IMAGE_TAG is unset.
	ImageTagDefaultLatest ImageTagPolicy = "default-latest"
)

// ParseImageTagPolicy parses a policy name.
func ParseImageTagPolicy(s string) (ImageTagPolicy, error) {
	switch p := ImageTagPolicy(s); p {
	case ImageTagRequired, ImageTagDefaultLatest:
		return p, nil
	case "":
		return ImageTagRequired, nil
	default:
		return "", fmt.Errorf("unknown image tag policy %q (use %q or %q)", s, ImageTagRequired, ImageTagDefaultLatest)
	}
}

// Options controls configuration policy decisions.
type Options struct {
	ImageTag ImageTagPolicy
}

// Lookup returns the value of a variable and whether it is set.
type Lookup func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup reads from a fixed map.
func MapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Chain returns the first value found across lookups, in order.
func Chain(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if v, ok := l(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

// HTTPSConfig holds the optional secure listener settings.
type HTTPSConfig struct {
	Enabled        bool
	Domain         string
	CertificateARN string
	HostedZoneID   string
}

// TagInputs holds the values of the common tags.
type TagInputs struct {
	Project     string
	Environment string
	AppName     string
	Owner       string
	CostCenter  string
}

// EnvConfig is the validated configuration. Treat it as read-only.
type EnvConfig struct {
	Region             string
	AccountID          string
	VPCCIDR            string
	PublicSubnetCIDRs  [2]string
	PrivateSubnetCIDRs [2]string
	RepoName           string
	ClusterName        string
	ImageTag           string
	ContainerPort      int
	DesiredTasks       int
	ALBPort            int
	ALBAllowedCIDRs    []string
	EgressCIDRs        []string
	CPU                string
	Memory             string
	LogRetentionDays   int
	StateBucket        string
	StateKey           string
	HTTPS              HTTPSConfig
	Tags               TagInputs
}

// AvailabilityZones returns the two zones derived from the region.
func (c EnvConfig) AvailabilityZones() [2]string {
	return [2]string{c.Region + "a", c.Region + "b"}
}

// ImageURI returns the registry image reference for the task definition.
func (c EnvConfig) ImageURI() string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s:%s", c.AccountID, c.Region, c.RepoName, c.ImageTag)
}

// ServiceName returns the ECS service name.
func (c EnvConfig) ServiceName() string {
	return c.ClusterName + "-service"
}

// RequiredVars returns the required variable names in reporting order.
func RequiredVars(opts Options) []string {
	names := []string{
		EnvRegion,
		EnvAccountID,
		EnvRepoName,
		EnvClusterName,
		EnvVPCCIDR,
		EnvPublicCIDRA,
		EnvPublicCIDRB,
		EnvPrivateCIDRA,
		EnvPrivateCIDRB,
		EnvStateBucket,
	}
	if opts.ImageTag != ImageTagDefaultLatest {
		names = append(names, EnvImageTag)
	}
	return names
}

// ValidateRequired checks that every name is set to a non-blank value. The
// returned *Error lists every missing name.
func ValidateRequired(names []string, lookup Lookup) error {
	var missing []string
	for _, name := range names {
		if v, ok := lookup(name); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}

// Load validates the environment and returns the configuration with defaults
// applied. Every problem is reported in a single *Error.
func Load(lookup Lookup, opts Options) (EnvConfig, error) {
	if opts.ImageTag == "" {
		opts.ImageTag = ImageTagRequired
	}

	cerr := &Error{}
	if err := ValidateRequired(RequiredVars(opts), lookup); err != nil {
		cerr.Missing = err.(*Error).Missing
	}

	r := reader{lookup: lookup, err: cerr}

	cfg := EnvConfig{
		Region:      r.str(EnvRegion, ""),
		AccountID:   r.str(EnvAccountID, ""),
		RepoName:    r.str(EnvRepoName, ""),
		ClusterName: r.str(EnvClusterName, ""),
		VPCCIDR:     r.str(EnvVPCCIDR, ""),
		PublicSubnetCIDRs: [2]string{
			r.str(EnvPublicCIDRA, ""),
			r.str(EnvPublicCIDRB, ""),
		},
		PrivateSubnetCIDRs: [2]string{
			r.str(EnvPrivateCIDRA, ""),
			r.str(EnvPrivateCIDRB, ""),
		},
		StateBucket:      r.str(EnvStateBucket, ""),
		ContainerPort:    r.port(EnvContainerPort, DefaultContainerPort),
		DesiredTasks:     r.positiveInt(EnvDesiredTasks, DefaultDesiredTasks),
		ALBPort:          r.port(EnvALBPort, DefaultALBPort),
		ALBAllowedCIDRs:  r.cidrList(EnvALBAllowedCIDRs),
		EgressCIDRs:      r.cidrList(EnvEgressCIDRs),
		CPU:              r.positiveIntString(EnvCPU, DefaultCPU),
		Memory:           r.positiveIntString(EnvMemory, DefaultMemory),
		LogRetentionDays: r.positiveInt(EnvLogRetention, DefaultLogRetention),
	}

	imageTagDefault := ""
	if opts.ImageTag == ImageTagDefaultLatest {
		imageTagDefault = DefaultImageTag
	}
	cfg.ImageTag = r.str(EnvImageTag, imageTagDefault)
	if strings.ContainsAny(cfg.ImageTag, " :@") {
		cerr.invalid(EnvImageTag, cfg.ImageTag, "must not contain spaces, ':' or '@'")
	}

	cfg.StateKey = r.str(EnvStateKey, cfg.ClusterName+"/terraform.tfstate")

	cfg.HTTPS = HTTPSConfig{
		Enabled:        r.boolean(EnvEnableHTTPS),
		Domain:         r.str(EnvDomainName, ""),
		CertificateARN: r.str(EnvCertificateARN, ""),
		HostedZoneID:   r.str(EnvHostedZoneID, ""),
	}
	if cfg.HTTPS.Enabled && cfg.HTTPS.Domain != "" && cfg.HTTPS.CertificateARN == "" && cfg.HTTPS.HostedZoneID == "" {
		cerr.invalid(EnvHostedZoneID, "", "required to issue and validate a certificate when "+EnvCertificateARN+" is not set")
	}
	if cfg.HTTPS.Enabled && cfg.HTTPS.Domain != "" && cfg.ALBPort == HTTPSPort {
		cerr.invalid(EnvALBPort, strconv.Itoa(cfg.ALBPort), "collides with the HTTPS listener port")
	}

	cfg.Tags = TagInputs{
		Project:     r.str(EnvProject, DefaultProject),
		Environment: r.str(EnvEnvironment, DefaultEnvironment),
		AppName:     r.str(EnvAppName, cfg.ClusterName),
		Owner:       r.str(EnvOwner, DefaultOwner),
		CostCenter:  r.str(EnvCostCenter, DefaultCostCenter),
	}

	validateNetwork(cfg, cerr)

	if !cerr.empty() {
		return EnvConfig{}, cerr
	}
	return cfg, nil
}

// validateNetwork checks that the VPC and subnet CIDRs parse and that every
// subnet lies inside the VPC. Unset values were already reported as missing.
func validateNetwork(cfg EnvConfig, cerr *Error) {
	vpc, vpcOK := parsePrefix(EnvVPCCIDR, cfg.VPCCIDR, cerr)

	subnets := []struct {
		name, value string
	}{
		{EnvPublicCIDRA, cfg.PublicSubnetCIDRs[0]},
		{EnvPublicCIDRB, cfg.PublicSubnetCIDRs[1]},
		{EnvPrivateCIDRA, cfg.PrivateSubnetCIDRs[0]},
		{EnvPrivateCIDRB, cfg.PrivateSubnetCIDRs[1]},
	}
	seen := make(map[netip.Prefix]string)
	for _, s := range subnets {
		p, ok := parsePrefix(s.name, s.value, cerr)
		if !ok {
			continue
		}
		if vpcOK && (!vpc.Contains(p.Addr()) || p.Bits() < vpc.Bits()) {
			cerr.invalid(s.name, s.value, "not inside "+EnvVPCCIDR+" "+cfg.VPCCIDR)
		}
		if other, dup := seen[p]; dup {
			cerr.invalid(s.name, s.value, "same block as "+other)
		}
		seen[p] = s.name
	}
}

func parsePrefix(name, value string, cerr *Error) (netip.Prefix, bool) {
	if value == "" {
		return netip.Prefix{}, false
	}
	p, err := netip.ParsePrefix(value)
	if err != nil || !p.Addr().Is4() {
		cerr.invalid(name, value, "not an IPv4 CIDR block")
		return netip.Prefix{}, false
	}
	return p.Masked(), true
}

// reader pulls typed values out of a Lookup, recording problems in err.
type reader struct {
	lookup Lookup
	err    *Error
}

func (r reader) raw(key string) string {
	v, _ := r.lookup(key)
	return strings.TrimSpace(v)
}

func (r reader) str(key, def string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return def
}

func (r reader) positiveInt(key string, def int) int {
	v := r.raw(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.err.invalid(key, v, "must be a positive integer")
		return def
	}
	return n
}

func (r reader) port(key string, def int) int {
	v := r.raw(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		r.err.invalid(key, v, "must be a port between 1 and 65535")
		return def
	}
	return n
}

func (r reader) positiveIntString(key, def string) string {
	v := r.raw(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err != nil || n <= 0 {
		r.err.invalid(key, v, "must be a positive integer")
		return def
	}
	return v
}

func (r reader) boolean(key string) bool {
	v := r.raw(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err.invalid(key, v, "must be a boolean")
		return false
	}
	return b
}

func (r reader) cidrList(key string) []string {
	v := r.raw(key)
	if v == "" {
		v = DefaultCIDR
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if p, err := netip.ParsePrefix(item); err != nil || !p.Addr().Is4() {
			r.err.invalid(key, item, "not an IPv4 CIDR block")
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		r.err.invalid(key, v, "no CIDR blocks")
	}
	return out
}
