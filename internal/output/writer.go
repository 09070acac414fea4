package output

import (
	"fmt"
	"log"
	"os"
)

// Write sends rendered JSON to path, or stdout when path is empty.
func Write(jsonStr, path string) error {
	if path == "" {
		fmt.Println(jsonStr)
		return nil
	}
	if err := os.WriteFile(path, []byte(jsonStr+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %q: %w", path, err)
	}
	log.Printf("Written to %s", path)
	return nil
}
