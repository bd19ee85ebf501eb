package config

// DefaultCEXAddresses, DefaultBridgeAddresses and DefaultMixerAddresses are
// the built-in Solana integration catalogs, overridable via
// KNOWN_CEX_ADDRESSES / KNOWN_BRIDGE_ADDRESSES / KNOWN_MIXER_ADDRESSES.
// Addresses are well-known hot wallets and bridge program IDs; labels are
// informational only.
var (
	DefaultCEXAddresses = []string{
		"5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9", // Binance hot wallet
		"2ojv9BAiHUrvsm9gxDe7fJSzbNZSJcxZvf8dqmWGHG8S", // Coinbase hot wallet
		"H8sMJSCQxfKiFTCfDR3DUMLPwcRbM61LGFJ5djtJ8P9s", // Kraken hot wallet
	}
	DefaultBridgeAddresses = []string{
		"worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth",  // Wormhole
		"3u8hJUVTA4jH1wYAyUur7FFZVQ8H635K3tSHHF4ssjQ5",  // Wormhole token bridge
		"DEbiQCGr6mQm4bB7kNMqKB9Wg1g8MQ7cdEyo3xsF4VH4",  // Allbridge
	}
	DefaultMixerAddresses = []string{
		"1nc1nerator11111111111111111111111111111111", // SOL incinerator/burn address
	}
)

// ServiceType describes the category a KnownAddressProvider assigns.
type ServiceType string

const (
	ServiceCEX    ServiceType = "cex"
	ServiceBridge ServiceType = "bridge"
	ServiceMixer  ServiceType = "mixer"
)

// KnownAddressProvider resolves an address to a known integration service,
// if any. The default implementation is a static table seeded from
// configuration; a pluggable provider can be swapped in without touching
// callers.
type KnownAddressProvider interface {
	Lookup(address string) (ServiceType, bool)
}

// StaticKnownAddresses is the default KnownAddressProvider: three
// configuration-driven sets checked in order CEX, bridge, mixer.
type StaticKnownAddresses struct {
	cex    map[string]bool
	bridge map[string]bool
	mixer  map[string]bool
}

// NewStaticKnownAddresses builds a provider from the config's catalogs.
func NewStaticKnownAddresses(c *Config) *StaticKnownAddresses {
	return &StaticKnownAddresses{
		cex:    toSet(c.KnownCEXAddresses),
		bridge: toSet(c.KnownBridgeAddresses),
		mixer:  toSet(c.KnownMixerAddresses),
	}
}

func (s *StaticKnownAddresses) Lookup(address string) (ServiceType, bool) {
	if s.cex[address] {
		return ServiceCEX, true
	}
	if s.bridge[address] {
		return ServiceBridge, true
	}
	if s.mixer[address] {
		return ServiceMixer, true
	}
	return "", false
}

func toSet(addrs []string) map[string]bool {
	m := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		m[a] = true
	}
	return m
}

// BlacklistProvider reports whether an address appears on a pluggable
// blacklist. The default is always-empty; a static, env-configured list is
// provided as a second implementation — see spec design notes on blacklist
// ambiguity.
type BlacklistProvider interface {
	IsBlacklisted(address string) bool
}

// EmptyBlacklist never reports a hit. This is the default provider.
type EmptyBlacklist struct{}

func (EmptyBlacklist) IsBlacklisted(string) bool { return false }

// StaticBlacklist checks membership in a fixed, config-loaded address set.
type StaticBlacklist struct {
	addrs map[string]bool
}

// NewStaticBlacklist builds a StaticBlacklist from the config's list.
func NewStaticBlacklist(c *Config) *StaticBlacklist {
	return &StaticBlacklist{addrs: toSet(c.Blacklist)}
}

func (s *StaticBlacklist) IsBlacklisted(address string) bool {
	return s.addrs[address]
}
