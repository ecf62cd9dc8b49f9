package buildinfo

const Graffiti = "           _           _           \n ___ _ __ (_)_ __   __| | _____  __\n/ __| '_ \\| | '_ \\ / _` |/ _ \\ \\/ /\n\\__ \\ |_) | | | | | (_| |  __/>  < \n|___/ .__/|_|_| |_|\\__,_|\\___/_/\\_\\\n    |_|                            \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "spindex"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
