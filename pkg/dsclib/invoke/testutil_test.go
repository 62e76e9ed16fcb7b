package invoke

import "os"

func writeExecutableScript(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o755)
}
