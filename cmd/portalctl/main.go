// Command portalctl validates page definitions and exports page tables.
package main

import "csd-portal/ops-portal/ops-portal-backend/internal/cli"

func main() {
	cli.Execute()
}
