// README: Entry point; hands over to the cobra command tree.
package main

import "courier/internal/cli"

func main() {
	cli.Execute()
}
