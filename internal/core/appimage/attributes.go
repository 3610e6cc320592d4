package appimage

// Attributes are the derived fields of one qualifying asset
type Attributes struct {
	Arch        Arch
	Version     string
	PackageName string
}

// Describe derives the record attributes for asset name of a release in repo
func Describe(repo, tag, name string, target Arch) (Attributes, error) {
	pkg, err := PackageName(repo)
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		Arch:        ResolveArch(ExtractArch(name), target),
		Version:     NormalizeVersion(tag, name),
		PackageName: pkg,
	}, nil
}
