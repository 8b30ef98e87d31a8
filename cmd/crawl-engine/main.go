// Crawl Engine CLI入口
package main

import "github.com/LENAX/crawl-engine/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
