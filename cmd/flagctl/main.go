// Command flagctl inspects and edits the flags of Unreal package files.
package main

func main() {
	execute()
}
