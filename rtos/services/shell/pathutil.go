package shell

import "path"

// absPath resolves p against the working directory. The result is always
// absolute and clean; ".." never climbs above "/".
func (s *Service) absPath(p string) string {
	switch {
	case p == "":
		return s.cwd
	case p[0] == '/':
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}
