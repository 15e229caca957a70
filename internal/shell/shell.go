package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// RunCommand runs input with bash and returns its output and exit code.
// A non-zero exit code is not an error.
func RunCommand(ctx context.Context, input string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	output := stdout.String()
	if errStr := stderr.String(); errStr != "" {
		output = errStr
		slog.Warn("command might be failed",
			"command", input,
			"output", output,
		)
	}
	if err == nil {
		return output, 0, nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return output, -1, err
	}
	return output, ee.ExitCode(), nil
}

// Elevated runs commands behind an elevation prefix such as "sudo -n".
type Elevated struct {
	Prefix string
}

// RunPrivileged runs command behind the prefix and reports whether it
// exited with status 0. The whole command line runs under the prefix.
func (e Elevated) RunPrivileged(ctx context.Context, command string) (bool, string) {
	if e.Prefix != "" {
		command = e.Prefix + " sh -c " + shellescape.Quote(command)
	}
	output, code, err := RunCommand(ctx, command)
	if err != nil {
		return false, err.Error()
	}
	return code == 0, output
}

func ExpandHome(input string) (string, error) {
	result := input

	// 1. expand tilda
	if strings.HasPrefix(result, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("HOME environment variable is not set")
		}
		result = strings.Replace(result, "~/", home+"/", 1)
	} else if result == "~" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("HOME environment variable is not set")
		}
		result = home
	}

	// 2. expand env, e.g. $HOME、${HOME}
	for {
		start := strings.Index(result, "$")
		if start == -1 {
			break
		}

		var end int
		var varName string

		if strings.HasPrefix(result[start:], "${") {
			// case of ${VAR} format
			end = strings.Index(result[start:], "}")
			if end == -1 {
				return "", fmt.Errorf("unclosed variable brace in input: %s", input)
			}
			end += start
			varName = result[start+2 : end]
			end++ // go to next of "}"
		} else {
			for i := start + 1; i < len(result); i++ {
				if !isShellVarChar(result[i]) {
					end = i
					break
				}
			}
			if end == 0 {
				end = len(result)
			}
			varName = result[start+1 : end]
		}

		value := os.Getenv(varName)
		result = result[:start] + value + result[end:]
	}

	return result, nil
}

func isShellVarChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
