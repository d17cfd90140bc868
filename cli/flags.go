package cli

const FlagHome = "home"
