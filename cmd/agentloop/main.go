// Command agentloop runs the CRM assistant as an interactive chat or as an HTTP service.
package main

func main() {
	Execute()
}
