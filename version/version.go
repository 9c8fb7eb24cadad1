package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = HeaderSyncSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// HeaderSyncSemVer is the current version of headersync.
	// It's the Semantic Version of the software.
	HeaderSyncSemVer = "0.1.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

var (
	// HeaderProtocol versions the header wire layout and its hashing.
	HeaderProtocol Protocol = 1

	// StoreProtocol versions the database key layout.
	StoreProtocol Protocol = 1
)

// Info is the version information printed by the version command.
type Info struct {
	HeaderSync     string   `json:"headersync"`
	HeaderProtocol Protocol `json:"header_protocol"`
	StoreProtocol  Protocol `json:"store_protocol"`
}

// Current returns the version information of this build.
func Current() Info {
	return Info{
		HeaderSync:     Version,
		HeaderProtocol: HeaderProtocol,
		StoreProtocol:  StoreProtocol,
	}
}
