// Command scontrini-report lists, prints and exports restaurant records
// from the terminal, and can add restaurants and records.
package main

func main() {
	Execute()
}
