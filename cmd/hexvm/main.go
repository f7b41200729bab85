// Command hexvm replays workload scripts against the HexVM memory manager.
package main

func main() {
	Execute()
}
