package cli

import "flag"

// HelpVersionFlags records whether the caller asked for usage text or the
// build version instead of a normal run.
type HelpVersionFlags struct {
	Help    bool
	Version bool
}

// AddHelpVersionFlags registers the -h/-help and -v/-version pairs on the
// reeldrop flag set. There is a single binary, so the usage strings are
// fixed here rather than passed in.
func AddHelpVersionFlags(fs *flag.FlagSet) *HelpVersionFlags {
	if fs == nil {
		return &HelpVersionFlags{}
	}
	flags := &HelpVersionFlags{}
	fs.BoolVar(&flags.Help, "help", false, "Show help and exit")
	fs.BoolVar(&flags.Help, "h", false, "Show help and exit")
	fs.BoolVar(&flags.Version, "version", false, "Print version and exit")
	fs.BoolVar(&flags.Version, "v", false, "Print version and exit")
	return flags
}
