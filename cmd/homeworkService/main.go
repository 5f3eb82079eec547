package main

import (
	"github.com/airenas/speakhw/internal/app/homework"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	homework.Execute()
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
    /_/  __                                        __  
        / /_  ____  ____ ___  ___ _      ______  _/ /__
       / __ \/ __ \/ __ ` + "`" + `__ \/ _ \ | /| / / __ \/ //_/
      / / / / /_/ / / / / / /  __/ |/ |/ / /_/ / ,<   
     /_/ /_/\____/_/ /_/ /_/\___/|__/|__/\____/_/|_|  v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/airenas/speakhw"))
}
