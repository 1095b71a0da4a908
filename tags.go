package monover

import (
	"strings"
)

// parseTag interprets a raw tag reference against the configured prefix.
// Global tags look like "{prefix}{version}"; project tags like
// "{project}-{prefix}{version}" or "{project}/{prefix}{version}". Tags that
// do not carry a parseable version are rejected with ok=false, never fatally.
func parseTag(ref TagRef, tagPrefix string) (Tag, bool) {
	name := ref.Name

	// Global form first, so prerelease identifiers containing the project
	// separator characters never get mistaken for a project prefix.
	if strings.HasPrefix(name, tagPrefix) {
		if version, err := ParseVersion(strings.TrimPrefix(name, tagPrefix)); err == nil {
			return Tag{Name: name, Hash: ref.Hash, Version: version}, true
		}
	}

	project := ""
	rest := ""
	if i := strings.LastIndex(name, "/"); i > 0 {
		project, rest = name[:i], name[i+1:]
	} else if i := strings.Index(name, "-"+tagPrefix); tagPrefix != "" && i > 0 {
		project, rest = name[:i], name[i+1:]
	} else {
		return Tag{}, false
	}

	if !strings.HasPrefix(rest, tagPrefix) {
		return Tag{}, false
	}
	version, err := ParseVersion(strings.TrimPrefix(rest, tagPrefix))
	if err != nil {
		return Tag{}, false
	}

	return Tag{
		Name:    name,
		Hash:    ref.Hash,
		Version: version,
		Scope:   ScopeProject,
		Project: project,
	}, true
}

// candidateTags keeps the tags that apply to the given project: global tags
// always compete, project-specific tags only for their own project.
func candidateTags(tags []Tag, project string) []Tag {
	var out []Tag
	for _, t := range tags {
		switch t.Scope {
		case ScopeGlobal:
			out = append(out, t)
		case ScopeProject:
			if project != "" && t.Project == project {
				out = append(out, t)
			}
		}
	}
	return out
}

// selectBaseTag picks the base version: the numerically highest parsed
// version across the candidate set, global and project-specific competing
// directly. A project-specific tag wins an exact version tie, so a project's
// own counter keeps precedence until a global tag genuinely exceeds it.
func selectBaseTag(candidates []Tag) (Tag, bool) {
	var best Tag
	found := false
	for _, t := range candidates {
		if !found {
			best, found = t, true
			continue
		}
		switch best.Version.Compare(t.Version) {
		case -1:
			best = t
		case 0:
			if t.Scope == ScopeProject && best.Scope == ScopeGlobal {
				best = t
			}
		}
	}
	return best, found
}
