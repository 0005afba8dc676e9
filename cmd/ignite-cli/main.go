// Command ignite-cli is a thin TCP client for a running ignite-server,
// matching spec.md §6.3: set K V|get K|rm K --addr ADDR, exit code 0 on
// success, nonzero on any surfaced error including rm of an absent key.
package main

import (
	"fmt"
	"os"

	"github.com/ignitekv/ignite/internal/netclient"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
)

const defaultAddr = "127.0.0.1:4000"

func main() {
	addr, rest := extractAddr(os.Args[1:])
	if len(rest) < 1 {
		usage()
		os.Exit(1)
	}

	op, args := rest[0], rest[1:]

	client, err := netclient.Dial(addr)
	if err != nil {
		printErr(err)
		os.Exit(1)
	}
	defer client.Close()

	switch op {
	case "set":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := client.Set(args[0], args[1]); err != nil {
			printErr(err)
			os.Exit(1)
		}

	case "get":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		value, ok, err := client.Get(args[0])
		if err != nil {
			printErr(err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "key not found")
			os.Exit(1)
		}
		fmt.Println(value)

	case "rm":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		if err := client.Remove(args[0]); err != nil {
			printErr(err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(1)
	}
}

// printErr reports err to stderr, and adds a retry hint when the server
// flagged the underlying failure as transient (see errors.RequestError.Retryable).
func printErr(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	if re, ok := kverrors.AsRequestError(err); ok && re.Retryable() {
		fmt.Fprintln(os.Stderr, "(retryable: the server reported this as a transient failure, try again)")
	}
}

// extractAddr pulls "--addr ADDR" out of args, wherever it appears, since
// spec.md's usage puts it after the operation's positional arguments
// (`set K V --addr ADDR`), which the standard flag package can't parse
// directly (it stops at the first non-flag argument).
func extractAddr(args []string) (addr string, rest []string) {
	addr = defaultAddr
	for i := 0; i < len(args); i++ {
		if args[i] == "--addr" || args[i] == "-addr" {
			if i+1 < len(args) {
				addr = args[i+1]
				i++
			}
			continue
		}
		rest = append(rest, args[i])
	}
	return addr, rest
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ignite-cli <set K V|get K|rm K> [--addr ADDR]")
}
