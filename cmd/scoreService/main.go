package main

import (
	"github.com/airenas/speakhw/internal/app/scorer"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	scorer.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                          __   
   _________  ___  ____ _/ /__ 
  / ___/ __ \/ _ \/ __ ` + "`" + `/ //_/ 
 (__  ) /_/ /  __/ /_/ / ,<    
/____/ .___/\___/\__,_/_/|_|   
    /_/  ______________  ________ 
        / ___/ ___/ __ \/ ___/ _ \
       (__  ) /__/ /_/ / /  /  __/
      /____/\___/\____/_/   \___/  v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/airenas/speakhw"))
}
